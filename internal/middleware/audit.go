package middleware

import (
	"database/sql"
	"net/http"

	"mealtrust/internal/models"
	"mealtrust/internal/repository"
)

// AuditMiddleware records security-relevant actions in the audit log
type AuditMiddleware struct {
	auditRepo *repository.AuditRepository
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(db *sql.DB) *AuditMiddleware {
	return &AuditMiddleware{
		auditRepo: repository.NewAuditRepository(db),
	}
}

// Log records the action after the handler has run
func (m *AuditMiddleware) Log(action, entityType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			entry := &models.AuditLog{
				Action:     action,
				EntityType: entityType,
				EntityID:   r.PathValue("id"),
				IPAddress:  getIP(r),
			}
			if actor, ok := GetActor(r); ok {
				id := actor.UserID
				entry.UserID = &id
				entry.UserName = actor.Name
			}

			// Audit failures must not block the request
			_ = m.auditRepo.Create(entry)
		})
	}
}
