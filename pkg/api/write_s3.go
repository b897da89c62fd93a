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

type WriteS3 struct {
	Account         string   `yaml:"account" json:"account" doc:"prefix of every object name, usually the tenant"`
	Endpoint        string   `yaml:"endpoint" json:"endpoint" doc:"address of s3 server"`
	AccessKeyID     string   `yaml:"accessKeyId" json:"accessKeyId" doc:"username to connect to server"`
	SecretAccessKey string   `yaml:"secretAccessKey" json:"secretAccessKey" doc:"password to connect to server"`
	Bucket          string   `yaml:"bucket" json:"bucket" doc:"bucket into which to store objects"`
	Secure          bool     `yaml:"secure,omitempty" json:"secure,omitempty" doc:"use HTTPS to reach the server"`
	Compress        bool     `yaml:"compress,omitempty" json:"compress,omitempty" doc:"snappy-compress objects"`
	Timeout         Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" doc:"maximum time to wait for one object upload (default: 10s)"`
}
