package metrics

type CPUInfo struct {
	CPUCount        int      `json:"cpu_count" bson:"cpu_count"`
	LogicalCPUCount int      `json:"logical_cpu_count" bson:"logical_cpu_count"`
	Percent         float64  `json:"cpu_percent" bson:"cpu_percent"`
	Freq            *float64 `json:"cpu_freq" bson:"cpu_freq"`
	Model           string   `json:"cpu_model" bson:"cpu_model"`
	Stats           CPUStats `json:"cpu_stats" bson:"cpu_stats"`
}

type CPUStats struct {
	CtxSwitches    int64 `json:"ctx_switches" bson:"ctx_switches"`
	Interrupts     int64 `json:"interrupts" bson:"interrupts"`
	SoftInterrupts int64 `json:"soft_interrupts" bson:"soft_interrupts"`
	Syscalls       int64 `json:"syscalls" bson:"syscalls"`
}
