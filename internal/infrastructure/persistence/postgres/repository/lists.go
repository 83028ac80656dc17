package repository

import (
	"context"
	"errors"

	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

var _ lists.Repository = (*ListRepository)(nil)

func parseIDs(userID, id string) (uuid.UUID, uuid.UUID, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, lists.ErrListNotFound
	}
	lid, err := uuid.Parse(id)
	if err != nil {
		return uid, uuid.Nil, lists.ErrListNotFound
	}
	return uid, lid, nil
}

func (r *ListRepository) FindByUser(ctx context.Context, userID string) ([]lists.List, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []lists.List{}, nil
	}
	var rows []ListRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", uid).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]lists.List, 0, len(rows))
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *ListRepository) Create(ctx context.Context, list *lists.List) error {
	uid, err := uuid.Parse(list.UserID)
	if err != nil {
		return err
	}
	tasks, err := encodeTasks(list.Tasks)
	if err != nil {
		return err
	}
	row := ListRow{
		ID:                uuid.New(),
		UserID:            uid,
		Title:             list.Title,
		Streak:            list.Streak,
		LastCompletedDate: list.LastCompletedDate,
		CompletedToday:    list.CompletedToday,
		Tasks:             tasks,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	list.ID = row.ID.String()
	list.CreatedAt = row.CreatedAt
	list.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ListRepository) UpdateForUser(ctx context.Context, userID, id string, input lists.ListInput) (*lists.List, error) {
	uid, lid, err := parseIDs(userID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := encodeTasks(input.Tasks)
	if err != nil {
		return nil, err
	}

	var row ListRow
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", lid, uid).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return lists.ErrListNotFound
			}
			return err
		}
		row.Title = input.Title
		row.Streak = input.Streak
		row.LastCompletedDate = input.LastCompletedDate
		row.CompletedToday = input.CompletedToday
		row.Tasks = tasks
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	l, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	uid, lid, err := parseIDs(userID, id)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", lid, uid).Delete(&ListRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lists.ErrListNotFound
	}
	return nil
}

func (r *ListRepository) GetOverall(ctx context.Context, userID string) (*lists.Overall, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	row := OverallRow{UserID: uid}
	if err := r.db.WithContext(ctx).
		Where(OverallRow{UserID: uid}).
		FirstOrCreate(&row).Error; err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *ListRepository) UpsertOverall(ctx context.Context, userID string, input lists.OverallInput) (*lists.Overall, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	row := OverallRow{
		UserID:            uid,
		Streak:            input.Streak,
		LastCompletedDate: input.LastCompletedDate,
		CompletedToday:    input.CompletedToday,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"streak", "last_completed_date", "completed_today", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	var stored OverallRow
	if err := r.db.WithContext(ctx).First(&stored, "user_id = ?", uid).Error; err != nil {
		return nil, err
	}
	return stored.toDomain(), nil
}
