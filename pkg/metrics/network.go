package metrics

type NetworkInfo struct {
	BytesSentKB float64 `json:"bytes_sent_kb" bson:"bytes_sent_kb"`
	BytesRecvKB float64 `json:"bytes_recv_kb" bson:"bytes_recv_kb"`
	PacketsSent int64   `json:"packets_sent" bson:"packets_sent"`
	PacketsRecv int64   `json:"packets_recv" bson:"packets_recv"`
}
