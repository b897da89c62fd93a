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
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
)

const header = `> Note: this file was automatically generated, to update execute "go run ./cmd/apitodoc > docs/api.md"

# wids-feature-pipeline configuration API

Each section below documents one block of the configuration file. The same keys are accepted as
command line flags in dash-separated form (e.g. ` + "`--kismet.window-sec`" + `) and as WIDS_ prefixed environment variables.
`

// docWriter renders the doc tags of the api structs as markdown.
type docWriter struct {
	out io.Writer
}

func pad(level int) string {
	return strings.Repeat("    ", level)
}

func yamlName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get(api.TagYaml), ",")
	return name
}

// walk documents every tagged field of t. Pointers, slices and maps are documented by their element type.
func (w *docWriter) walk(t reflect.Type, level int) {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		w.walk(t.Elem(), level)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			doc := field.Tag.Get(api.TagDoc)
			if doc == "" {
				continue
			}
			switch {
			case strings.HasPrefix(doc, "#"):
				w.section(field, doc, level)
			case field.Tag.Get(api.TagEnum) != "":
				w.enum(field, doc, level)
			default:
				fmt.Fprintf(w.out, "%s%s: %s\n", pad(level), yamlName(field), doc)
				w.walk(field.Type, level+1)
			}
		}
	}
}

func (w *docWriter) section(field reflect.StructField, doc string, level int) {
	fmt.Fprintf(w.out, "\n%s\n<pre>\n%s%s:\n", doc, pad(level), yamlName(field))
	w.walk(field.Type, level+1)
	fmt.Fprint(w.out, "</pre>\n")
}

func (w *docWriter) enum(field reflect.StructField, doc string, level int) {
	fmt.Fprintf(w.out, "%s%s: (enum) %s\n", pad(level), yamlName(field), strings.TrimPrefix(doc, "(enum) "))
	enumType := api.GetEnumReflectionTypeByFieldName(field.Tag.Get(api.TagEnum))
	for i := 0; i < enumType.NumField(); i++ {
		value := enumType.Field(i)
		fmt.Fprintf(w.out, "%s%s: %s\n", pad(level+1), value.Tag.Get(api.TagYaml), value.Tag.Get(api.TagDoc))
	}
}

func main() {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	fmt.Fprint(out, header)
	(&docWriter{out: out}).walk(reflect.TypeOf(api.API{}), 0)
}
