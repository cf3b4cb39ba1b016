package repository

import (
	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository instance
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

// FindSubtags returns the subtags that exist among uuids.
func (r *tagRepository) FindSubtags(uuids []string) ([]models.Subtag, error) {
	var subtags []models.Subtag
	if len(uuids) == 0 {
		return subtags, nil
	}
	err := r.db.Where("uuid IN ?", uuids).Find(&subtags).Error
	return subtags, err
}

// AttachSubtags inserts one attachment row per subtag in a single batch.
func (r *tagRepository) AttachSubtags(accountUUID string, subtagUUIDs []string) error {
	if len(subtagUUIDs) == 0 {
		return nil
	}
	rows := make([]models.PlatformAccountSubtag, 0, len(subtagUUIDs))
	for _, id := range subtagUUIDs {
		rows = append(rows, models.PlatformAccountSubtag{
			PlatformAccountUUID: accountUUID,
			SubtagUUID:          id,
		})
	}
	return r.db.Create(&rows).Error
}
