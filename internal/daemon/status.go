package daemon

import (
	"sort"
	"time"
)

// Status represents daemon runtime information.
type Status struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	StartedAt    time.Time      `json:"started_at,omitzero"`
	ConfigPath   string         `json:"config_path"`
	LockFilePath string         `json:"lock_file"`
	LogPath      string         `json:"log_path,omitempty"`
	Debug        bool           `json:"debug"`
	Reloads      int64          `json:"reloads"`
	Renderer     RendererStatus `json:"renderer"`
	Fonts        FontStatus     `json:"fonts"`
	Clients      []ClientStatus `json:"clients"`
}

// RendererStatus describes the supervised renderer process.
type RendererStatus struct {
	State    string `json:"state"`
	Alive    bool   `json:"alive"`
	PID      int    `json:"pid,omitempty"`
	Launches int64  `json:"launches"`
	Address  string `json:"address"`
}

// FontStatus reports the global font sizes currently in effect.
type FontStatus struct {
	Normal    int `json:"normal"`
	Large     int `json:"large"`
	Overrides int `json:"overrides"`
}

// ClientStatus summarizes one owner's delivery counters.
type ClientStatus struct {
	Owner   string `json:"owner"`
	Token   string `json:"token"`
	Sent    int64  `json:"sent"`
	Failed  int64  `json:"failed"`
	Dropped int64  `json:"dropped"`
	Pending int    `json:"pending"`
}

func sortClients(clients []ClientStatus) {
	sort.Slice(clients, func(i, j int) bool { return clients[i].Owner < clients[j].Owner })
}
