// Package dto はcoursesフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// CreateCourseReq はPOST /coursesのリクエストボディです。
type CreateCourseReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// EnrollReq はPOST /courses/:id/enrollmentsのリクエストボディです。
type EnrollReq struct {
	StudentID string `json:"studentId" binding:"required"`
}
