package metrics

type DiskInfo struct {
	Device     string  `json:"device" bson:"device"`
	Mountpoint string  `json:"mountpoint" bson:"mountpoint"`
	TotalGB    float64 `json:"total_disk_gb" bson:"total_disk_gb"`
	UsedGB     float64 `json:"used_disk_gb" bson:"used_disk_gb"`
	Percent    float64 `json:"disk_percent" bson:"disk_percent"`
	IO         DiskIO  `json:"disk_io" bson:"disk_io"`
}

// DiskIO holds cumulative counters since boot.
type DiskIO struct {
	ReadCount  int64 `json:"read_count" bson:"read_count"`
	WriteCount int64 `json:"write_count" bson:"write_count"`
	ReadBytes  int64 `json:"read_bytes" bson:"read_bytes"`
	WriteBytes int64 `json:"write_bytes" bson:"write_bytes"`
}
