package lpc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// errTooDeep guards the recursive save/restore walk against the
// depth limit configured as MAX_SAVE_SVALUE_DEPTH (spec.md §4.4).
var errTooDeep = newRuntimeError("save value exceeds maximum depth")

const maxSaveSvalueDepth = 50

// SaveObject serializes every non-static variable of ob to the
// textual format of spec.md §4.4 and writes it atomically (temp file
// then rename) to path + the configured save-file extension.
func (vm *VM) SaveObject(ob *Object, path string, saveZeros bool) error {
	real, err := vm.Sandbox.Resolve(path + vm.Config.GetString(ConfigSaveFileExtension))
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%s\n", ob.Program.Path)
	for i, name := range ob.Program.Variables {
		if ob.Program.Statics[name] {
			continue
		}
		v := ob.Vars[i]
		if !saveZeros && isFalsy(v) && !isContainer(v) {
			continue
		}
		text, err := saveValue(v, 0)
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		fmt.Fprintf(&b, "%s %s\n", name, text)
	}

	return atomicWriteFile(real, b.String())
}

func isContainer(v Value) bool {
	switch v.(type) {
	case *Array, *Mapping, *Class:
		return true
	}
	return false
}

// atomicWriteFile writes contents to a sibling temp file and renames
// it over path, the mandatory discipline of spec.md §6.2.
func atomicWriteFile(path, contents string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".save-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// saveValue renders one svalue using the grammar of spec.md §4.4:
// object/function/buffer/lvalue values are emitted as the literal "0"
// rather than attempted.
func saveValue(v Value, depth int) (string, error) {
	if depth > maxSaveSvalueDepth {
		return "", errTooDeep
	}
	switch t := v.(type) {
	case Int:
		return strconv.FormatInt(t.V, 10), nil
	case Float:
		return strconv.FormatFloat(t.V, 'g', -1, 64), nil
	case *String:
		return quoteSaveString(t.Value()), nil
	case *Array:
		parts := make([]string, len(t.Items))
		for i := range t.Items {
			s, err := saveValue(Resolve(&t.Items[i]), depth+1)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "({" + strings.Join(parts, ",") + "})", nil
	case *Mapping:
		var parts []string
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			ks, err := saveValue(k, depth+1)
			if err != nil {
				return "", err
			}
			vs, err := saveValue(val, depth+1)
			if err != nil {
				return "", err
			}
			parts = append(parts, ks+":"+vs)
		}
		return "([" + strings.Join(parts, ",") + "])", nil
	case *Class:
		parts := make([]string, len(t.Items))
		for i := range t.Items {
			s, err := saveValue(Resolve(&t.Items[i]), depth+1)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(/" + strings.Join(parts, ",") + "/)", nil
	default:
		// object, function, buffer, lvalue
		return "0", nil
	}
}

// quoteSaveString escapes a string payload per spec.md §4.4: `"` and
// `\` are backslash-escaped, and embedded newlines are rewritten to
// `\r` so the on-disk format stays line-oriented.
func quoteSaveString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
