package repository

import (
	"encoding/json"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Email        string    `gorm:"uniqueIndex:idx_user_email;not null"`
	PasswordHash string    `gorm:"not null"`
	TokenVersion int       `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserRow) TableName() string { return "users" }

func (r UserRow) toDomain() *user.User {
	return &user.User{
		ID:           r.ID.String(),
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		TokenVersion: r.TokenVersion,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type ListRow struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_list_user"`
	Title             string         `gorm:"not null"`
	Streak            int            `gorm:"not null;default:0"`
	LastCompletedDate *string        `gorm:"type:varchar(10)"`
	CompletedToday    bool           `gorm:"not null;default:false"`
	Tasks             datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt         time.Time      `gorm:"index:idx_list_created"`
	UpdatedAt         time.Time
}

func (ListRow) TableName() string { return "lists" }

func (r ListRow) toDomain() (lists.List, error) {
	tasks := []lists.Task{}
	if len(r.Tasks) > 0 {
		if err := json.Unmarshal(r.Tasks, &tasks); err != nil {
			return lists.List{}, err
		}
	}
	return lists.List{
		ID:                r.ID.String(),
		UserID:            r.UserID.String(),
		Title:             r.Title,
		Streak:            r.Streak,
		LastCompletedDate: r.LastCompletedDate,
		CompletedToday:    r.CompletedToday,
		Tasks:             tasks,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

type OverallRow struct {
	UserID            uuid.UUID `gorm:"type:uuid;primary_key"`
	Streak            int       `gorm:"not null;default:0"`
	LastCompletedDate *string   `gorm:"type:varchar(10)"`
	CompletedToday    bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (OverallRow) TableName() string { return "overalls" }

func (r OverallRow) toDomain() *lists.Overall {
	return &lists.Overall{
		UserID:            r.UserID.String(),
		Streak:            r.Streak,
		LastCompletedDate: r.LastCompletedDate,
		CompletedToday:    r.CompletedToday,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func encodeTasks(tasks []lists.Task) (datatypes.JSON, error) {
	if tasks == nil {
		tasks = []lists.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Models lists the tables in migration order.
func Models() []interface{} {
	return []interface{}{
		&UserRow{},
		&ListRow{},
		&OverallRow{},
	}
}
