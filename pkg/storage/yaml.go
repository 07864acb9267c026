// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func init() {
	Catalogs.Register("yaml", func(_ context.Context, params map[string]string) (Catalog, error) {
		return LoadFileCatalog(params["path"])
	}, "path")
}

// catalogFile is the on-disk layout of a YAML catalog:
//
//	storages:
//	  - uid: 1
//	    name: fileadmin
//	    driver: local
//	    configuration:
//	      base_path: /var/www/fileadmin
type catalogFile struct {
	Storages []Record `yaml:"storages"`
}

// LoadFileCatalog reads a YAML catalog file. Environment variables in the
// file are expanded before parsing.
func LoadFileCatalog(path string) (*StaticCatalog, error) {
	if path == "" {
		return nil, fmt.Errorf("yaml catalog: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewStaticCatalog(file.Storages), nil
}
