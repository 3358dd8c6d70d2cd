// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

// maxPlanFileBytes caps plan file size. Plans are hand-written YAML;
// anything near a megabyte is a mistake.
const maxPlanFileBytes = 1 << 20

// planFile is the YAML document accepted by "aleutianplan analyze".
type planFile struct {
	PlanID string         `yaml:"plan_id"`
	Steps  []planFileStep `yaml:"steps"`
}

type planFileStep struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Criticality string   `yaml:"criticality"`

	// DependsOn lists blocking dependencies by step id.
	DependsOn []string `yaml:"depends_on"`

	// Dependencies allows typed edges when DependsOn is not enough.
	Dependencies []planFileDep `yaml:"dependencies"`
}

type planFileDep struct {
	On   string `yaml:"on"`
	Kind string `yaml:"kind"`
}

// objectivesFile is the YAML document accepted by "aleutianplan decompose".
type objectivesFile struct {
	PlanID      string   `yaml:"plan_id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Objectives  []string `yaml:"objectives"`
	Constraints []string `yaml:"constraints"`
}

func readYAMLFile(path string, out any) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxPlanFileBytes {
		return fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), maxPlanFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// loadPlanFile reads and converts a plan file into engine steps.
func loadPlanFile(path string) (string, []*datatypes.Step, error) {
	var pf planFile
	if err := readYAMLFile(path, &pf); err != nil {
		return "", nil, err
	}
	if len(pf.Steps) == 0 {
		return "", nil, fmt.Errorf("%s contains no steps", path)
	}

	steps := make([]*datatypes.Step, 0, len(pf.Steps))
	for _, fs := range pf.Steps {
		s := &datatypes.Step{
			StepID:      fs.ID,
			Name:        fs.Name,
			Description: fs.Description,
			Tags:        fs.Tags,
			Criticality: datatypes.Criticality(fs.Criticality),
		}
		for _, dep := range fs.DependsOn {
			s.Dependencies = append(s.Dependencies, datatypes.Dependency{
				DependsOn: dep,
				Kind:      datatypes.DependencyBlocking,
			})
		}
		for _, dep := range fs.Dependencies {
			kind := datatypes.DependencyKind(dep.Kind)
			if dep.Kind == "" {
				kind = datatypes.DependencyBlocking
			} else if !kind.Valid() {
				return "", nil, fmt.Errorf("step %q: unknown dependency kind %q", fs.ID, dep.Kind)
			}
			s.Dependencies = append(s.Dependencies, datatypes.Dependency{
				DependsOn: dep.On,
				Kind:      kind,
			})
		}
		steps = append(steps, s)
	}
	return pf.PlanID, steps, nil
}
