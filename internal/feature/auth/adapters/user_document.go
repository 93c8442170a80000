package adapters

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
)

// userDocument はusersコレクションに保存されるドキュメントです。
type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	Role         string        `bson:"role"`
	Formation    string        `bson:"formation,omitempty"`
	Disciplines  []string      `bson:"disciplines,omitempty"`
	Bio          string        `bson:"bio,omitempty"`
	ProfileImage string        `bson:"profileImage,omitempty"`
	Demo         bool          `bson:"demo,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func toUserDocument(u *entity.User) userDocument {
	doc := userDocument{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Formation:    u.Formation,
		Disciplines:  u.Disciplines,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
		Demo:         u.Demo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if oid, err := bson.ObjectIDFromHex(u.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         entity.Role(d.Role),
		Formation:    d.Formation,
		Disciplines:  d.Disciplines,
		Bio:          d.Bio,
		ProfileImage: d.ProfileImage,
		Demo:         d.Demo,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
