/*
 * Copyright (C) 2022 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package api

type IngestKismet struct {
	URL       string   `yaml:"url,omitempty" json:"url,omitempty" doc:"base URL of the Kismet REST API"`
	WindowSec int      `yaml:"windowSec,omitempty" json:"windowSec,omitempty" doc:"only fetch devices active during the last windowSec seconds"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" doc:"maximum time to wait for the device listing (default: 5s)"`
	APIKey    string   `yaml:"apiKey,omitempty" json:"apiKey,omitempty" doc:"API key sent as the KISMET session cookie"`
	Username  string   `yaml:"username,omitempty" json:"username,omitempty" doc:"user for HTTP basic authentication"`
	Password  string   `yaml:"password,omitempty" json:"password,omitempty" doc:"password for HTTP basic authentication"`
}
