package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionReportCreate   = "REPORT_CREATE"
	AuditActionReportUpdate   = "REPORT_UPDATE"
	AuditActionReportDelete   = "REPORT_DELETE"
	AuditActionReportSubmit   = "REPORT_SUBMIT"
	AuditActionReportApprove  = "REPORT_APPROVE"
	AuditActionReportReject   = "REPORT_REJECT"
	AuditActionStaffCreate    = "STAFF_CREATE"
	AuditActionStaffUpdate    = "STAFF_UPDATE"
	AuditActionStaffDelete    = "STAFF_DELETE"
	AuditActionCustomerCreate = "CUSTOMER_CREATE"
	AuditActionCustomerUpdate = "CUSTOMER_UPDATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	StaffID    *int64    `db:"staff_id" json:"staffId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *int64    `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent  string    `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
