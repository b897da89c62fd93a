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

import (
	"log"
	"reflect"
	"sync"
)

// enums lists every enum struct, by the name used in `enum` tags.
type enums struct {
	SinkTypeEnum        SinkTypeEnum
	ScorerModelTypeEnum ScorerModelTypeEnum
}

type enumNameCacheKey struct {
	enum      reflect.Type
	operation string
}

var enumNamesCache sync.Map

// GetEnumName gets the name of an enum value from the representing enum struct based on `TagYaml` tag.
func GetEnumName(enum interface{}, operation string) string {
	t := reflect.TypeOf(enum)
	key := enumNameCacheKey{enum: t, operation: operation}
	if cached, found := enumNamesCache.Load(key); found {
		return cached.(string)
	}
	field, found := t.FieldByName(operation)
	if !found {
		log.Panicf("can't find operation %s in enum %v", operation, t)
		return ""
	}
	tag := field.Tag.Get(TagYaml)
	enumNamesCache.Store(key, tag)
	return tag
}

// EnumValues returns the accepted values of an enum, in declaration order.
func EnumValues(enum interface{}) []string {
	t := reflect.TypeOf(enum)
	values := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		values = append(values, t.Field(i).Tag.Get(TagYaml))
	}
	return values
}

// GetEnumReflectionTypeByFieldName gets the enum struct `reflection Type` from the name of the struct (using fields from `enums{}` struct).
func GetEnumReflectionTypeByFieldName(enumName string) reflect.Type {
	field, found := reflect.TypeOf(enums{}).FieldByName(enumName)
	if !found {
		log.Panicf("can't find enumName %s in enums", enumName)
		return nil
	}
	return field.Type
}
