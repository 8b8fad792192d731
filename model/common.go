package model

import (
	"time"

	"golang.org/x/time/rate"
)

type BaseResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type IpLimiter struct {
	Limiter    *rate.Limiter
	LastActive time.Time
}
