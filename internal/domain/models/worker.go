package models

import (
	"time"
)

type WorkerStatus string

const (
	WorkerOffline WorkerStatus = "offline"
	WorkerOnline  WorkerStatus = "online"
	WorkerCrashed WorkerStatus = "crashed"
)

type WorkerConfig struct {
	MaxSessions int
	MemoryLimit int
	AutoRestart bool
	AutoStart   bool
}

type Worker struct {
	ID                string
	Name              string
	Status            WorkerStatus
	Config            WorkerConfig
	CPUPercent        float64
	MemPercent        float64
	ActiveSessions    int
	MessagesProcessed int64
	LastHeartbeat     time.Time
	CreatedAt         time.Time
}

type WorkerStats struct {
	ID                string
	Name              string
	Status            WorkerStatus
	ActiveSessions    int
	MaxSessions       int
	CPUPercent        float64
	MemPercent        float64
	MessagesProcessed int64
	UptimeSeconds     int64
	LastHeartbeat     time.Time
}

type SystemStats struct {
	TotalWorkers      int
	OnlineWorkers     int
	TotalSessions     int
	MessagesProcessed int64
	MessagesPerSecond float64
	HostCPUPercent    float64
	HostMemPercent    float64
}

type ResourceSnapshot struct {
	CPUPercent float64
	MemPercent float64
	MemTotal   uint64
	MemUsed    uint64
	SampledAt  time.Time
}
