package internal

// Version is the application version.
const Version = "0.4.0"
