package entity

import "time"

type Session struct {
	PassengerID string    `json:"passengerId" yaml:"passenger_id"`
	Username    string    `json:"username" yaml:"username"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty"`
	Token       string    `json:"token" yaml:"token"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
}

func (s Session) Valid() bool {
	return s.PassengerID != "" && s.Token != ""
}
