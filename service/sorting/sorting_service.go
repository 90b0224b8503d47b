package sorting

import (
	"fmt"

	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
)

// SortResult is the session plus the products it generated.
type SortResult struct {
	Session  entity.SortSession `json:"sort"`
	Products []entity.Product   `json:"products"`
}

// Sort converts one sorting pass over a ball into graded products. A
// product is created per non-zero grade with initial stock equal to the
// counted pieces (initial-stock exception to the ledger; the row does not
// exist before this point). The ball moves to SORTED and its opened total
// is recomputed over all of its sessions.
func Sort(db *gorm.DB, actorID uint, ballCode string, gradeA, gradeB, reject int) (*SortResult, error) {
	if gradeA < 0 || gradeB < 0 || reject < 0 {
		return nil, apperr.Validation("grade counts must be >= 0")
	}
	if gradeA+gradeB+reject == 0 {
		return nil, apperr.Validation("at least one grade count must be > 0")
	}

	var ball entity.Ball
	err := db.Where("code = ?", ballCode).First(&ball).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("ball %s not found", ballCode)
	}
	if err != nil {
		return nil, err
	}

	result := &SortResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		session := entity.SortSession{
			BallID: ball.ID,
			GradeA: gradeA,
			GradeB: gradeB,
			Reject: reject,
			UserID: actorID,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		result.Session = session

		for _, g := range []struct {
			grade string
			count int
		}{
			{"A", gradeA},
			{"B", gradeB},
			{"REJECT", reject},
		} {
			if g.count <= 0 {
				continue
			}
			ballID := ball.ID
			p := entity.Product{
				Name:     fmt.Sprintf("%s - %s - %s", ball.Category, g.grade, ball.Code),
				Category: ball.Category,
				Grade:    g.grade,
				Stock:    g.count,
				BallID:   &ballID,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			result.Products = append(result.Products, p)
		}

		if err := tx.Model(&entity.Ball{}).
			Where("id = ?", ball.ID).
			Update("status", entity.BallSorted).Error; err != nil {
			return err
		}

		return recomputeBallTotal(tx, ball.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recomputeBallTotal persists totalPcsOpened as the sum of grade counts
// over ALL sessions of the ball, not just the latest one.
func recomputeBallTotal(tx *gorm.DB, ballID uint) error {
	var total struct {
		Sum int
	}
	err := tx.Model(&entity.SortSession{}).
		Select("COALESCE(SUM(grade_a + grade_b + reject), 0) AS sum").
		Where("ball_id = ?", ballID).
		Scan(&total).Error
	if err != nil {
		return err
	}
	return tx.Model(&entity.Ball{}).
		Where("id = ?", ballID).
		Update("total_pcs_opened", total.Sum).Error
}

// UpdateSession changes a session's counts and recomputes the owning
// ball's opened total. It never resizes the products generated by the
// original sort; those may already be partially sold.
func UpdateSession(db *gorm.DB, actorID uint, id uint, gradeA, gradeB, reject int) (*entity.SortSession, error) {
	if gradeA < 0 || gradeB < 0 || reject < 0 {
		return nil, apperr.Validation("grade counts must be >= 0")
	}

	var session entity.SortSession
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&session, id).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("sort session %d not found", id)
		}
		if err != nil {
			return err
		}

		err = tx.Model(&entity.SortSession{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"grade_a": gradeA,
				"grade_b": gradeB,
				"reject":  reject,
				"user_id": actorID,
			}).Error
		if err != nil {
			return err
		}

		session.GradeA, session.GradeB, session.Reject = gradeA, gradeB, reject
		session.UserID = actorID
		return recomputeBallTotal(tx, session.BallID)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session and recomputes the ball's opened total.
// Generated products are left untouched.
func DeleteSession(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var session entity.SortSession
		err := tx.First(&session, id).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("sort session %d not found", id)
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&entity.SortSession{}, id).Error; err != nil {
			return err
		}
		return recomputeBallTotal(tx, session.BallID)
	})
}

// ListSessions returns sessions newest first.
func ListSessions(db *gorm.DB) ([]entity.SortSession, error) {
	var rows []entity.SortSession
	err := db.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// GetSession loads one session.
func GetSession(db *gorm.DB, id uint) (*entity.SortSession, error) {
	var row entity.SortSession
	err := db.First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("sort session %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
