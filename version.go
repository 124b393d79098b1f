package main

import "github.com/blang/semver/v4"

// Version of the calversion CLI.
var Version = semver.MustParse("1.0.0")
