package playback

// BuildArgs exposes buildArgs for black-box testing.
var BuildArgs = buildArgs
