package lpc

import "fmt"

// Config holds the driver's tunables, keyed by name exactly like the
// reference driver's CONFIG_INT/CONFIG_STR arrays (spec.md §6.4), kept
// as a typed map the way the teacher keeps its grammar/compiler
// settings rather than a struct of named fields.
type Config map[string]*cfgVal

const (
	ConfigEvaluatorStackSize = "interpreter.evaluator_stack_size"
	ConfigMaxCallDepth       = "interpreter.max_call_depth"
	ConfigMaxEvalCost        = "interpreter.max_eval_cost"
	ConfigMaxArraySize       = "interpreter.max_array_size"
	ConfigMaxMappingSize     = "interpreter.max_mapping_size"
	ConfigMaxStringLength    = "interpreter.max_string_length"
	ConfigMaxBufferSize      = "interpreter.max_buffer_size"
	ConfigMaxByteTransfer    = "io.max_byte_transfer"
	ConfigMaxReadFileSize    = "io.max_read_file_size"
	ConfigMaxBitfieldBits    = "interpreter.max_bitfield_bits"
	ConfigReservedMemSize    = "interpreter.reserved_mem_size"
	ConfigLivingHashTableSize = "objects.living_hash_table_size"
	ConfigObjectNameHashSize  = "objects.name_hash_table_size"
	ConfigTimeToClean         = "objects.time_to_clean_up"
	ConfigTimeToReset         = "objects.time_to_reset"
	ConfigSaveFileExtension   = "save.file_extension"
)

// NewConfig returns a Config primed with the driver's stock defaults,
// the way the teacher's NewConfig primes grammar/compiler toggles.
func NewConfig() *Config {
	m := make(Config)
	m.SetInt(ConfigEvaluatorStackSize, 8192)
	m.SetInt(ConfigMaxCallDepth, 256)
	m.SetInt(ConfigMaxEvalCost, 10_000_000)
	m.SetInt(ConfigMaxArraySize, 65536)
	m.SetInt(ConfigMaxMappingSize, 65536)
	m.SetInt(ConfigMaxStringLength, 1 << 20)
	m.SetInt(ConfigMaxBufferSize, 1 << 20)
	m.SetInt(ConfigMaxByteTransfer, 1 << 16)
	m.SetInt(ConfigMaxReadFileSize, 1 << 20)
	m.SetInt(ConfigMaxBitfieldBits, 1 << 16)
	m.SetInt(ConfigReservedMemSize, 1 << 16)
	m.SetInt(ConfigLivingHashTableSize, 257)
	m.SetInt(ConfigObjectNameHashSize, 1021)
	m.SetInt(ConfigTimeToClean, 900)
	m.SetInt(ConfigTimeToReset, 1800)
	m.SetString(ConfigSaveFileExtension, ".o")
	return &m
}

type cfgValType int

const (
	cfgValUndefined cfgValType = iota
	cfgValBool
	cfgValInt
	cfgValString
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValUndefined: "undefined",
		cfgValBool:      "bool",
		cfgValInt:       "int",
		cfgValString:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValUndefined {
		panic(fmt.Sprintf("can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve `%s` from `%s` setting", vt, v.typ))
	}
}

func (c *Config) SetBool(name string, v bool) {
	(*c)[name] = &cfgVal{}
	(*c)[name].assignType(cfgValBool)
	(*c)[name].asBool = v
}

func (c *Config) SetInt(name string, v int) {
	(*c)[name] = &cfgVal{}
	(*c)[name].assignType(cfgValInt)
	(*c)[name].asInt = v
}

func (c *Config) SetString(name string, v string) {
	(*c)[name] = &cfgVal{}
	(*c)[name].assignType(cfgValString)
	(*c)[name].asString = v
}

func (c *Config) GetBool(name string) bool {
	if val, ok := (*c)[name]; ok {
		val.checkType(cfgValBool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting `%s` does not exist", name))
}

func (c *Config) GetInt(name string) int {
	if val, ok := (*c)[name]; ok {
		val.checkType(cfgValInt)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting `%s` does not exist", name))
}

func (c *Config) GetString(name string) string {
	if val, ok := (*c)[name]; ok {
		val.checkType(cfgValString)
		return val.asString
	}
	panic(fmt.Sprintf("string setting `%s` does not exist", name))
}
