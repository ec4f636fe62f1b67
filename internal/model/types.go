package model

import "time"

// DemandStatus represents a demand's lifecycle status
type DemandStatus string

const (
	DemandPending    DemandStatus = "PENDING"
	DemandInProgress DemandStatus = "IN_PROGRESS"
	DemandCompleted  DemandStatus = "COMPLETED"
)

// ResponseStatus represents a service response's review status
type ResponseStatus string

const (
	ResponsePendingReview ResponseStatus = "PENDING_REVIEW"
	ResponseAccepted      ResponseStatus = "ACCEPTED"
	ResponseRejected      ResponseStatus = "REJECTED"
)

// Role represents a user role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ServiceType is a member of the fixed service-type catalog
type ServiceType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ServiceTypes is the fixed catalog of offered service categories.
// IDs are referenced by the statistics filters.
var ServiceTypes = []ServiceType{
	{ID: 1, Name: "plumbing-repair"},
	{ID: 2, Name: "elder-care"},
	{ID: 3, Name: "cleaning"},
	{ID: 4, Name: "medical-escort"},
	{ID: 5, Name: "meal-delivery"},
	{ID: 6, Name: "school-transport"},
}

// ServiceTypeID returns the catalog id for a type name, 0 if unknown.
func ServiceTypeID(name string) int {
	for _, st := range ServiceTypes {
		if st.Name == name {
			return st.ID
		}
	}
	return 0
}

// Demand represents a posted community-service demand
type Demand struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Type        string       `json:"type"`
	LocationID  int          `json:"locationId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Address     string       `json:"address"`
	Status      DemandStatus `json:"status"`
	CreateTime  string       `json:"createTime"`
	UpdateTime  string       `json:"updateTime"`
}

// Sentinel projection values used when a response's parent demand no
// longer exists.
const (
	UnknownDemandTitle  = "unknown demand"
	UnknownServiceType  = "unknown type"
	UnknownDemandStatus = "unknown status"
)

// ServiceResponse represents a user's offer against a demand.
// DemandTitle, ServiceType and DemandStatus are projections of the parent
// demand recomputed on every read, never authoritative.
type ServiceResponse struct {
	ID           string         `json:"id"`
	DemandID     string         `json:"demandId"`
	UserID       string         `json:"userId"`
	Content      string         `json:"content"`
	Status       ResponseStatus `json:"status"`
	ResponseTime string         `json:"responseTime"`
	DemandTitle  string         `json:"demandTitle"`
	ServiceType  string         `json:"serviceType"`
	DemandStatus string         `json:"demandStatus"`
}

// User represents an account profile (no secret material)
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// StoredFile represents an uploaded attachment owned by the server
type StoredFile struct {
	ID           string `json:"id"`
	OwnerKind    string `json:"ownerKind"` // "demand" or "response"
	OwnerID      string `json:"ownerId"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
	RelPath      string `json:"relPath"`
	URL          string `json:"url"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// MonthlyCount is one bucket of a monthly statistics series
type MonthlyCount struct {
	Month string `json:"month"` // "2006-01"
	Count int    `json:"count"`
}

// FormatTime renders a timestamp the way the API exposes them
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05Z07:00")
}
