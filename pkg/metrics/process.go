package metrics

type ProcessInfo struct {
	PID           int32   `json:"pid" bson:"pid"`
	Name          string  `json:"name" bson:"name"`
	Username      string  `json:"username" bson:"username"`
	CPUPercent    float64 `json:"cpu_percent" bson:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent" bson:"memory_percent"`
}
