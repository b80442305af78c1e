package version

// Version is set at build time via -ldflags "-X termcal/internal/version.Version=..."
var Version = "dev"
