package models

import "time"

type MongoUser struct {
	ID               string      `bson:"_id"`
	Username         string      `bson:"username"`
	Premium          bool        `bson:"premium"`
	Blocked          bool        `bson:"blocked"`
	FreeUsesConsumed int         `bson:"free_uses"`
	Dialog           DialogState `bson:"dialog"`
	PendingSubject   string      `bson:"pending_subject"`
	PendingGrade     string      `bson:"pending_grade"`
	PendingTopic     string      `bson:"pending_topic"`
	PendingSince     time.Time   `bson:"pending_since"`
	CreatedAt        time.Time   `bson:"created_at"`
	UpdatedAt        time.Time   `bson:"updated_at"`
}

// NewMongoUser returns the record a user gets on first contact.
func NewMongoUser(id, username string) *MongoUser {
	now := time.Now().UTC()
	return &MongoUser{
		ID:        id,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClearScratch drops everything collected by an abandoned or finished dialog.
func (u *MongoUser) ClearScratch() {
	u.Dialog = DialogState{}
	u.PendingSubject = ""
	u.PendingGrade = ""
	u.PendingTopic = ""
	u.PendingSince = time.Time{}
}

// Generating reports whether a generation submitted less than ttl ago is
// still outstanding. Older ones were lost with the process that ran them.
func (u *MongoUser) Generating(now time.Time, ttl time.Duration) bool {
	return u.PendingTopic != "" && now.Sub(u.PendingSince) < ttl
}

type MongoHistory struct {
	ID         string         `bson:"_id"`
	UserID     string         `bson:"user_id"`
	Subject    string         `bson:"subject"`
	Grade      string         `bson:"grade"`
	Topic      string         `bson:"topic"`
	Mode       GenerationMode `bson:"mode"`
	FileHandle string         `bson:"file_handle"`
	CreatedAt  time.Time      `bson:"created_at"`
}
