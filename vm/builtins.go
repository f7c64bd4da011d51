// This file is part of rill - https://github.com/rill-lang/rill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rill-lang/rill/builtin"
	"github.com/rill-lang/rill/value"
)

// Stringify exposes package vm's PRINT-compatible rendering of a Value to
// callers outside the package, such as the REPL echoing an expression
// statement's result.
func Stringify(v value.Value) string { return stringify(v) }

// BindCore overwrites the registry's stub host routines for the small set
// of core library words spec §8's end-to-end scenarios exercise directly
// (print, len, plus the type/conversion words a general-purpose script
// needs to use them) with real implementations backed by heap and w.
//
// Every builtin family beyond this — filesystem, HTTP, JSON, base64,
// hashing, tensor/matrix math — stays on package builtin's no-op stub per
// §1 ("their internal logic is not specified here"); BindCore only wires
// the handful of words a script cannot do without, the same way
// cmd/retro's main.go wires real port handlers for the two I/O ports the
// CLI actually drives (port1Handler/port2Handler) while leaving the rest
// of ngaro's port space to the VM's defaults.
func BindCore(reg *builtin.Registry, heap *value.Heap, w io.Writer) {
	reg.Bind("print", func(args []value.Value) (value.Value, error) {
		fmt.Fprintln(w, stringify(args[0]))
		return value.Nil, nil
	})
	reg.Bind("len", func(args []value.Value) (value.Value, error) {
		v := args[0]
		if !v.IsObject() {
			return value.Nil, errLenArg
		}
		return value.Int(int32(v.AsObject().Len())), nil
	})
	reg.Bind("type", func(args []value.Value) (value.Value, error) {
		return value.Object(heap.InternString(typeName(args[0]))), nil
	})
	reg.Bind("str", func(args []value.Value) (value.Value, error) {
		return value.Object(heap.InternString(stringify(args[0]))), nil
	})
	reg.Bind("int", func(args []value.Value) (value.Value, error) {
		return coerceInt(args[0])
	})
	reg.Bind("float", func(args []value.Value) (value.Value, error) {
		return coerceFloat(args[0])
	})
}

var errLenArg = &RuntimeError{Msg: "len() argument is not sized"}

func typeName(v value.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return "bool"
	case v.IsInt():
		return "int"
	case v.IsFloat():
		return "float"
	case v.IsObject():
		switch v.AsObject().Type {
		case value.TString:
			return "string"
		case value.TArray:
			return "array"
		case value.TDict:
			return "dict"
		case value.TBytes:
			return "bytes"
		case value.TRange:
			return "range"
		case value.TFunction:
			return "function"
		}
	}
	return "unknown"
}

func coerceInt(v value.Value) (value.Value, error) {
	switch {
	case v.IsInt():
		return v, nil
	case v.IsFloat():
		f := v.AsFloat()
		if f < int32Min || f > int32Max {
			return value.Nil, &RuntimeError{Msg: "int() overflow"}
		}
		return value.Int(int32(f)), nil
	case v.IsObject() && v.AsObject().Type == value.TString:
		n, err := strconv.ParseInt(v.AsObject().Str, 10, 32)
		if err != nil {
			return value.Nil, &RuntimeError{Msg: "int() could not parse " + strconv.Quote(v.AsObject().Str)}
		}
		return value.Int(int32(n)), nil
	case v.IsBool():
		if v.AsBool() {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	}
	return value.Nil, &RuntimeError{Msg: "int() argument cannot be converted"}
}

func coerceFloat(v value.Value) (value.Value, error) {
	switch {
	case v.IsFloat():
		return v, nil
	case v.IsInt():
		return value.Number(float64(v.AsInt())), nil
	case v.IsObject() && v.AsObject().Type == value.TString:
		f, err := strconv.ParseFloat(v.AsObject().Str, 64)
		if err != nil {
			return value.Nil, &RuntimeError{Msg: "float() could not parse " + strconv.Quote(v.AsObject().Str)}
		}
		return value.Number(f), nil
	}
	return value.Nil, &RuntimeError{Msg: "float() argument cannot be converted"}
}
