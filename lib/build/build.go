/**
 * Copyright 2026 Adobe. All rights reserved.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License. You may obtain a copy
 * of the License at http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed under
 * the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR REPRESENTATIONS
 * OF ANY KIND, either express or implied. See the License for the specific language
 * governing permissions and limitations under the License.
 */

// Author: Sergei Parshev (@sparshev)

// Package build keeps the version information set by the linker:
//
//	go build -ldflags "-X github.com/adobe/webpilot/lib/build.Version=v0.2.0 -X github.com/adobe/webpilot/lib/build.Time=$(date -u +%FT%TZ)"
package build

// Version of the binary
var Version = "v0.0.0-dev"

// Time when the binary was built
var Time = "unknown"
