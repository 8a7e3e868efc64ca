package domain

import (
	"fmt"
	"strings"
	"time"
)

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Toggle returns the opposite status.
func (s MemberStatus) Toggle() MemberStatus {
	if s == MemberStatusActive {
		return MemberStatusInactive
	}
	return MemberStatusActive
}

type MemberRole string

const (
	MemberRoleMember    MemberRole = "member"
	MemberRoleModerator MemberRole = "moderator"
)

type Permission string

const (
	PermissionManageNotices      Permission = "manage_notices"
	PermissionManageTransactions Permission = "manage_transactions"
	PermissionManageMembers      Permission = "manage_members"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(strings.TrimSpace(s)); p {
	case PermissionManageNotices, PermissionManageTransactions, PermissionManageMembers:
		return p, nil
	}
	return "", NewValidationError("permissions", fmt.Sprintf("unknown permission %q", s))
}

type Member struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Address     string       `json:"address"`
	FatherName  string       `json:"father_name,omitempty"`
	MotherName  string       `json:"mother_name,omitempty"`
	DateOfBirth string       `json:"date_of_birth,omitempty"`
	BloodGroup  string       `json:"blood_group,omitempty"`
	Occupation  string       `json:"occupation,omitempty"`
	NationalID  string       `json:"national_id,omitempty"`
	PhotoURL    string       `json:"photo_url,omitempty"`
	Status      MemberStatus `json:"status"`
	JoinDate    time.Time    `json:"join_date"`
	Role        MemberRole   `json:"role,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// HasPermission is true only for moderators granted p.
func (m Member) HasPermission(p Permission) bool {
	if m.Role != MemberRoleModerator {
		return false
	}
	for _, granted := range m.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

type MemberCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}
