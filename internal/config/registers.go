// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import "github.com/Thermoquad/hlsprobe/pkg/sim"

// SimRegisters converts the register map into register file declarations
func (c *Config) SimRegisters() []sim.Register {
	out := make([]sim.Register, 0, len(c.Registers))
	for _, r := range c.Registers {
		mode := sim.ReadWrite
		if r.Access == AccessRO {
			mode = sim.ReadOnly
		}
		out = append(out, sim.Register{
			Name:  r.Name,
			Addr:  r.Addr,
			Mode:  mode,
			Reset: r.Reset,
		})
	}
	return out
}
