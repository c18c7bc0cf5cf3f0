package model

import "time"

const (
	TierFree = "free"
	TierPro  = "pro"
)

// User — учётная запись на сервере синхронизации.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Login    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"` // bcrypt hash

	Tier     string `gorm:"not null;default:free"`
	ProUntil *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// IsPro reports whether the user may use sync at the given moment.
func (u *User) IsPro(now time.Time) bool {
	if u == nil || u.Tier != TierPro {
		return false
	}
	return u.ProUntil == nil || u.ProUntil.After(now)
}
