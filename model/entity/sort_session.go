package entity

import "time"

// SortSession records one act of sorting a ball into graded piece counts.
// Editing a session recomputes the ball's opened total but never resizes
// the products generated by the original sort (they may already be sold).
type SortSession struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BallID    uint      `gorm:"column:ball_id;not null;index" json:"ballId"`
	GradeA    int       `gorm:"column:grade_a;not null;default:0" json:"gradeA"`
	GradeB    int       `gorm:"column:grade_b;not null;default:0" json:"gradeB"`
	Reject    int       `gorm:"column:reject;not null;default:0" json:"reject"`
	UserID    uint      `gorm:"column:user_id;not null" json:"userId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (SortSession) TableName() string {
	return "sort_sessions"
}

// Total is the number of pieces this session accounts for.
func (s SortSession) Total() int {
	return s.GradeA + s.GradeB + s.Reject
}
