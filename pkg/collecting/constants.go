package collecting

const (
	bytesPerGigabyte = 1 << 30
	bytesPerKilobyte = 1024
	unknownValue     = "Unknown"
)

// Mountpoint prefixes of pseudo filesystems that never hold data.
var pseudoMountPrefixes = []string{"/proc", "/sys", "/dev"}
