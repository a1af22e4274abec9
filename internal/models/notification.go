package models

// ── Notifications ────────────────────────────────────────────────

// Notification is a user-scoped alert generated by the expiry
// notifier or by write operations.
type Notification struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"` // "document_expired" | "document_expiring" | "system"
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	IsRead     bool   `json:"isRead"`
	CreatedAt  string `json:"createdAt"`
}

// ── Activity Log ─────────────────────────────────────────────────

// Activity is one audit-trail entry recorded alongside write
// operations.
type Activity struct {
	ID         string                 `json:"id"`
	UserID     *string                `json:"userId,omitempty"`
	UserName   *string                `json:"userName,omitempty"`
	Action     string                 `json:"action"` // "created" | "updated" | "deleted" | "exported" | ...
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  string                 `json:"createdAt"`
}
