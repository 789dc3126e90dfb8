package core

const Version = "0.1.0"

// UserAgent is sent with every network request.
const UserAgent = "anima-io/" + Version
