package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Work struct {
	bun.BaseModel  `bun:"table:work,alias:w"`
	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	WorkUID        string    `bun:"work_uid,notnull" json:"work_uid"`
	UserID         int64     `bun:"user_id,notnull" json:"user_id"`
	ExternalUserID string    `bun:"external_user_id,notnull" json:"external_user_id"`
	Mode           string    `bun:"mode" json:"mode"`
	Prompt         string    `bun:"prompt" json:"prompt"`
	ImageURL       string    `bun:"image_url" json:"image_url"`
	ShareURL       string    `bun:"share_url" json:"share_url"`
	ViewCount      int       `bun:"view_count,notnull,default:0" json:"view_count"`
	CreatedAt      time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
