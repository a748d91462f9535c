// Package constants loads model constants from a TOML file with sections
// core, layer and stocks.
package constants

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/netherland/pkg/types"
)

// ReferenceFile is the name of the embedded reference constants file.
const ReferenceFile = "morris_constants.toml"

//go:embed morris_constants.toml
var referenceTOML []byte

// Keys lists the required keys in file order.
var Keys = []string{
	"core.b", "core.sa",
	"layer.du", "layer.db",
	"stocks.bi", "stocks.bo", "stocks.fo", "stocks.k", "stocks.fc",
	"stocks.ro", "stocks.rd", "stocks.k1", "stocks.k2", "stocks.k3",
	"stocks.sv_to_ro", "stocks.wa_to_rl",
}

const keyBiomassAsh = "stocks.biomass_ash"

// Load reads and validates the constants file at path.
func Load(path string) (types.Constants, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return types.Constants{}, fmt.Errorf("%w: read %s: %v", types.ErrInvalidConfiguration, path, err)
	}
	return decode(v, path)
}

// Read parses and validates constants from r.
func Read(r io.Reader) (types.Constants, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(r); err != nil {
		return types.Constants{}, fmt.Errorf("%w: parse constants: %v", types.ErrInvalidConfiguration, err)
	}
	return decode(v, "constants")
}

// Reference returns the embedded reference constants.
func Reference() types.Constants {
	c, err := Read(bytes.NewReader(referenceTOML))
	if err != nil {
		panic(fmt.Sprintf("constants: embedded %s: %v", ReferenceFile, err))
	}
	return c
}

// ReferenceTOML returns the embedded reference file contents.
func ReferenceTOML() []byte {
	out := make([]byte, len(referenceTOML))
	copy(out, referenceTOML)
	return out
}

func decode(v *viper.Viper, source string) (types.Constants, error) {
	for _, key := range Keys {
		if !v.IsSet(key) {
			return types.Constants{}, fmt.Errorf("%w: %s: missing key %s", types.ErrInvalidConfiguration, source, key)
		}
	}

	c := types.Constants{
		B:          v.GetFloat64("core.b"),
		SA:         v.GetFloat64("core.sa"),
		DU:         v.GetFloat64("layer.du"),
		DB:         v.GetFloat64("layer.db"),
		BI:         v.GetFloat64("stocks.bi"),
		BO:         v.GetFloat64("stocks.bo"),
		FO:         v.GetFloat64("stocks.fo"),
		K:          v.GetFloat64("stocks.k"),
		FC:         v.GetFloat64("stocks.fc"),
		RO:         v.GetFloat64("stocks.ro"),
		RD:         v.GetFloat64("stocks.rd"),
		K1:         v.GetFloat64("stocks.k1"),
		K2:         v.GetFloat64("stocks.k2"),
		K3:         v.GetFloat64("stocks.k3"),
		SVToRO:     v.GetFloat64("stocks.sv_to_ro"),
		WAToRL:     v.GetFloat64("stocks.wa_to_rl"),
		BiomassAsh: v.GetBool(keyBiomassAsh),
	}
	if err := c.Validate(); err != nil {
		return types.Constants{}, fmt.Errorf("%s: %w", source, err)
	}
	return c, nil
}
