// Package domain contains persistence models for tenant records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus is the lifecycle state of a tenant's subscription.
type SubscriptionStatus string

const (
	StatusTrial    SubscriptionStatus = "trial"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusBlocked  SubscriptionStatus = "blocked"
	StatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPastDue, StatusBlocked, StatusCanceled:
		return true
	default:
		return false
	}
}

// Tenant is a billed customer account. UsedMinutes is mutated only through
// the atomic increment path and the cycle reset; everything else changes
// via administrative updates.
type Tenant struct {
	ID              snowflake.ID       `json:"id" gorm:"primaryKey"`
	CompanyName     string             `json:"company_name" gorm:"type:text;not null"`
	OwnerSubject    string             `json:"owner_subject" gorm:"type:text;not null"`
	Tier            string             `json:"tier" gorm:"type:text;not null"`
	Region          string             `json:"region" gorm:"type:text;not null"`
	Status          SubscriptionStatus `json:"status" gorm:"type:text;not null"`
	UsedMinutes     int64              `json:"used_minutes" gorm:"not null;default:0"`
	LastResetPeriod string             `json:"last_reset_period" gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
