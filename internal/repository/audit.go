package repository

import "kdo-portal/internal/models"

// AuditCapacity bounds the stored audit log.
const AuditCapacity = 100

// AuditRing is the audit log, newest first, holding at most AuditCapacity entries.
type AuditRing []models.AuditLog

// Push puts e in front and drops the oldest entries beyond capacity.
func (r AuditRing) Push(e models.AuditLog) AuditRing {
	n := len(r) + 1
	if n > AuditCapacity {
		n = AuditCapacity
	}
	out := make(AuditRing, 0, n)
	out = append(out, e)
	for _, old := range r {
		if len(out) == n {
			break
		}
		out = append(out, old)
	}
	return out
}
