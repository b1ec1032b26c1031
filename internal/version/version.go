package version

// Version is the build version of the relay and callprobe binaries.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/akshayasree99/healthx-signal/internal/version.Version=v1.0.0'"
var Version = "dev"
