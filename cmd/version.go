package cmd

// Version is set at build time via -ldflags "-X ...cmd.Version=v1.2.3".
var Version = "0.1.0"
