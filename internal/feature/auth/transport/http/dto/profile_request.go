package dto

// ProfileReq is the body of PUT /profile. Omitted fields are left unchanged.
type ProfileReq struct {
	Name         *string `json:"name"`
	Bio          *string `json:"bio"`
	Formation    *string `json:"formation"`
	ProfileImage *string `json:"profileImage"`
}
