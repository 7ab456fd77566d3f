package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/randpick/pkg/config"
	"github.com/cuemby/randpick/pkg/importer"
	"github.com/cuemby/randpick/pkg/picker"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a class definition file",
	Long: `Apply students, groups and settings from a YAML file. A file may hold
several documents separated by "---".

Example:
  kind: Roster
  metadata:
    name: class-3b
  spec:
    replace: true
    students:
      - {id: "301", name: Alice, weight: 2}
      - {id: "302", name: Bob}
  ---
  kind: Group
  metadata:
    name: Front row
  spec:
    members: ["301", "302"]
  ---
  kind: Config
  metadata:
    name: draw-settings
  spec:
    Group:
      global: "true"

Usage:
  randpick apply -f class.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// Resource is one document of an apply file
type Resource struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       yaml.Node        `yaml:"spec"`
}

type ResourceMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	resources, err := decodeResources(f)
	if err != nil {
		return err
	}

	for _, res := range resources {
		if err := applyResource(app.Picker, res); err != nil {
			return fmt.Errorf("%s %q: %w", res.Kind, res.Metadata.Name, err)
		}
	}
	return nil
}

// decodeResources reads every YAML document in r
func decodeResources(r io.Reader) ([]Resource, error) {
	dec := yaml.NewDecoder(r)

	var resources []Resource
	for {
		var res Resource
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if res.Kind == "" {
			continue
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func applyResource(p *picker.Picker, res Resource) error {
	switch res.Kind {
	case "Roster":
		return applyRoster(p, res)
	case "Group":
		return applyGroup(p, res)
	case "Config":
		return applyConfig(p, res)
	default:
		return fmt.Errorf("unsupported resource kind: %s", res.Kind)
	}
}

func applyRoster(p *picker.Picker, res Resource) error {
	var spec struct {
		Replace bool `yaml:"replace"`
	}
	if err := res.Spec.Decode(&spec); err != nil {
		return fmt.Errorf("invalid spec: %w", err)
	}
	students, err := importer.StudentsFromNode(&res.Spec)
	if err != nil {
		return err
	}

	if err := p.ImportStudents(students, spec.Replace); err != nil {
		return err
	}
	fmt.Printf("✓ Roster applied: %s (%d students)\n", res.Metadata.Name, len(students))
	return nil
}

func applyGroup(p *picker.Picker, res Resource) error {
	var spec struct {
		Members []string `yaml:"members"`
	}
	if err := res.Spec.Decode(&spec); err != nil {
		return fmt.Errorf("invalid spec: %w", err)
	}

	name := res.Metadata.Name
	members := studentIDs(spec.Members)

	err := p.SetGroupMembers(name, members)
	if errors.Is(err, picker.ErrGroupNotFound) {
		if err := p.CreateGroup(name, members); err != nil {
			return err
		}
		fmt.Printf("✓ Group created: %s (%d members)\n", name, len(members))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("✓ Group updated: %s (%d members)\n", name, len(members))
	return nil
}

func applyConfig(p *picker.Picker, res Resource) error {
	var spec map[string]map[string]string
	if err := res.Spec.Decode(&spec); err != nil {
		return fmt.Errorf("invalid spec: %w", err)
	}

	var triples []string
	for _, section := range config.SortedKeys(spec) {
		for _, key := range config.SortedKeys(spec[section]) {
			triples = append(triples, section, key, spec[section][key])
		}
	}

	if err := p.Configure(triples...); err != nil {
		return err
	}
	fmt.Printf("✓ Config applied: %s (%d settings)\n", res.Metadata.Name, len(triples)/3)
	return nil
}
