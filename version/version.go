// Copyright 2024 The slotcast Authors
// This file is part of the slotcast library.
//
// The slotcast library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slotcast library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slotcast library. If not, see <http://www.gnu.org/licenses/>.

// Package version carries the static identity reported by GetVersion.
package version

import (
	"runtime"

	jsoniter "github.com/json-iterator/go"
)

const (
	// Version is the release version of the service.
	Version = "1.11.0"

	// Package is the module identity.
	Package = "slotcast"
)

// GitCommit is set at link time via -ldflags.
var GitCommit = ""

// Info is the JSON shape of the GetVersion response body.
type Info struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// Current returns the identity of this build.
func Current() Info {
	return Info{
		Package: Package,
		Version: Version,
		Commit:  GitCommit,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// JSON returns the identity serialized for the RPC surface.
func JSON() string {
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(Current())
	if err != nil {
		return `{"package":"` + Package + `","version":"` + Version + `"}`
	}
	return out
}
