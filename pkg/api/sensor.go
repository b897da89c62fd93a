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

type Sensor struct {
	ID   string `yaml:"id,omitempty" json:"id,omitempty" doc:"sensor identifier (default: hostname)"`
	Site string `yaml:"site,omitempty" json:"site,omitempty" doc:"sensor site label"`
}

type Poll struct {
	IntervalSec int `yaml:"intervalSec,omitempty" json:"intervalSec,omitempty" doc:"seconds between two poll cycles"`
}
