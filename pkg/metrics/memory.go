package metrics

// MemoryInfo sizes are in GB.
type MemoryInfo struct {
	TotalGB     float64  `json:"total_memory_gb" bson:"total_memory_gb"`
	AvailableGB float64  `json:"available_memory_gb" bson:"available_memory_gb"`
	UsedGB      float64  `json:"used_memory_gb" bson:"used_memory_gb"`
	Percent     float64  `json:"memory_percent" bson:"memory_percent"`
	ActiveGB    float64  `json:"active_memory_gb" bson:"active_memory_gb"`
	InactiveGB  float64  `json:"inactive_memory_gb" bson:"inactive_memory_gb"`
	BuffersGB   float64  `json:"buffers_memory_gb" bson:"buffers_memory_gb"`
	CachedGB    float64  `json:"cached_memory_gb" bson:"cached_memory_gb"`
	Swap        SwapInfo `json:"swap_memory_info" bson:"swap_memory_info"`
}

type SwapInfo struct {
	TotalGB float64 `json:"total_smemory_gb" bson:"total_smemory_gb"`
	UsedGB  float64 `json:"used_smemory_gb" bson:"used_smemory_gb"`
	FreeGB  float64 `json:"free_smemory_gb" bson:"free_smemory_gb"`
	Percent float64 `json:"smemory_percent" bson:"smemory_percent"`
}
