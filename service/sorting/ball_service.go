package sorting

import (
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	"ballstore.GO/core/cache"
	entity "ballstore.GO/model/entity"
)

// BallInput for manual ball entry. Code is optional; a sequential one is
// generated when empty.
type BallInput struct {
	Code     string  `json:"code"`
	Origin   string  `json:"origin"`
	Category string  `json:"category"`
	Supplier string  `json:"supplier"`
	WeightKg float64 `json:"weightKg"`
	BuyPrice int64   `json:"buyPrice"`
	Status   string  `json:"status"`
}

var ballSeqRe = regexp.MustCompile(`(\d{4})$`)

// GenerateBallCode produces the next BALL-YYYYMM-#### code for the
// current month, skipping over any manually taken codes.
func GenerateBallCode(db *gorm.DB) (string, error) {
	now := time.Now()
	prefix := fmt.Sprintf("BALL-%04d%02d-", now.Year(), int(now.Month()))

	var last entity.Ball
	seq := 1
	err := db.Where("code LIKE ?", prefix+"%").
		Order("code DESC").
		First(&last).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", err
	}
	if err == nil {
		if m := ballSeqRe.FindStringSubmatch(last.Code); m != nil {
			fmt.Sscanf(m[1], "%d", &seq)
			seq++
		}
	}

	for {
		code := fmt.Sprintf("%s%04d", prefix, seq)
		var count int64
		if err := db.Model(&entity.Ball{}).
			Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
		seq++
	}
}

func validBallStatus(s string) bool {
	return s == entity.BallUnopened || s == entity.BallOpened || s == entity.BallSorted
}

// CreateBall registers a new intake lot.
func CreateBall(db *gorm.DB, actorID uint, in BallInput) (*entity.Ball, error) {
	if in.Origin == "" || in.Category == "" || in.Supplier == "" {
		return nil, apperr.Validation("origin, category and supplier are required")
	}
	if in.WeightKg <= 0 || in.BuyPrice <= 0 {
		return nil, apperr.Validation("weightKg and buyPrice must be > 0")
	}

	status := in.Status
	if status == "" {
		status = entity.BallUnopened
	}
	if !validBallStatus(status) {
		return nil, apperr.Validation("status must be UNOPENED/OPENED/SORTED")
	}

	code := in.Code
	if code != "" {
		var count int64
		if err := db.Model(&entity.Ball{}).
			Where("code = ?", code).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperr.Conflict("ball code %s already used", code)
		}
	} else {
		generated, err := GenerateBallCode(db)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	actor := actorID
	ball := entity.Ball{
		Code:      code,
		Origin:    in.Origin,
		Category:  in.Category,
		Supplier:  in.Supplier,
		WeightKg:  in.WeightKg,
		BuyPrice:  in.BuyPrice,
		Status:    status,
		CreatedBy: &actor,
	}
	if err := db.Create(&ball).Error; err != nil {
		return nil, err
	}
	cache.GetInstance().Delete(categoriesCacheKey)
	return &ball, nil
}

// UpdateBall patches mutable fields. Code changes are rejected; the code
// is the provenance anchor for sorted products.
func UpdateBall(db *gorm.DB, actorID uint, id uint, in BallInput) (*entity.Ball, error) {
	var existing entity.Ball
	err := db.First(&existing, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("ball %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if in.Code != "" && in.Code != existing.Code {
		return nil, apperr.Validation("changing ball code is not allowed")
	}

	updates := map[string]interface{}{"updated_by": actorID}
	if in.Origin != "" {
		updates["origin"] = in.Origin
	}
	if in.Category != "" {
		updates["category"] = in.Category
	}
	if in.Supplier != "" {
		updates["supplier"] = in.Supplier
	}
	if in.WeightKg != 0 {
		if in.WeightKg < 0 {
			return nil, apperr.Validation("weightKg must be > 0")
		}
		updates["weight_kg"] = in.WeightKg
	}
	if in.BuyPrice != 0 {
		if in.BuyPrice < 0 {
			return nil, apperr.Validation("buyPrice must be > 0")
		}
		updates["buy_price"] = in.BuyPrice
	}
	if in.Status != "" {
		if !validBallStatus(in.Status) {
			return nil, apperr.Validation("status must be UNOPENED/OPENED/SORTED")
		}
		updates["status"] = in.Status
	}

	if err := db.Model(&entity.Ball{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	cache.GetInstance().Delete(categoriesCacheKey)
	return GetBall(db, id)
}

// DeleteBall soft-marks a ball by suffixing its code. Rows referenced by
// sessions and products are never hard-removed.
func DeleteBall(db *gorm.DB, id uint) error {
	var existing entity.Ball
	err := db.First(&existing, id).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("ball %d not found", id)
	}
	if err != nil {
		return err
	}
	return db.Model(&entity.Ball{}).
		Where("id = ?", id).
		Update("code", existing.Code+"-DELETED").Error
}

// GetBall loads one ball.
func GetBall(db *gorm.DB, id uint) (*entity.Ball, error) {
	var row entity.Ball
	err := db.First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("ball %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// BallFilter narrows ListBalls.
type BallFilter struct {
	Status   string
	Origin   string
	Supplier string
	Limit    int
	Offset   int
}

// ListBalls returns balls newest first.
func ListBalls(db *gorm.DB, f BallFilter) ([]entity.Ball, int64, error) {
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	q := db.Model(&entity.Ball{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.Supplier != "" {
		q = q.Where("supplier = ?", f.Supplier)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []entity.Ball
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error
	return rows, total, err
}

const categoriesCacheKey = "ball:categories"

// BallCategories returns the distinct categories in use. Cached for a
// minute; ball writes invalidate eagerly.
func BallCategories(db *gorm.DB) ([]string, error) {
	if v, ok := cache.GetInstance().Get(categoriesCacheKey); ok {
		if cats, isSlice := v.([]string); isSlice {
			return cats, nil
		}
	}
	var cats []string
	err := db.Model(&entity.Ball{}).Distinct("category").Pluck("category", &cats).Error
	if err != nil {
		return nil, err
	}
	cache.GetInstance().Set(categoriesCacheKey, cats, 60)
	return cats, nil
}
