package reference

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTypeCatalog читает все справочники типов из папки (*.yaml, *.yml).
// Отсутствующая папка = пустой каталог.
func LoadTypeCatalog(dir string) (map[string]TypeCatalog, error) {
	result := make(map[string]TypeCatalog)
	if dir == "" {
		return result, nil
	}
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file.IsDir() || !(strings.HasSuffix(file.Name(), ".yaml") || strings.HasSuffix(file.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var cat TypeCatalog
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		// Имя справочника: из cat.Name или из имени файла
		name := cat.Name
		if name == "" {
			name = strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		}
		result[name] = cat
	}
	return result, nil
}

// ValueTypes возвращает имена всех типов каталога, отсортированные, без повторов.
func ValueTypes(catalog map[string]TypeCatalog) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, cat := range catalog {
		for _, t := range cat.Types {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SQLTypes собирает подсказки SQL типов: имя типа -> SQL.
// При конфликте побеждает справочник с меньшим именем.
func SQLTypes(catalog map[string]TypeCatalog) map[string]string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)

	out := map[string]string{}
	for _, n := range names {
		for _, t := range catalog[n].Types {
			if t.SQL == "" {
				continue
			}
			if _, ok := out[t.Name]; !ok {
				out[t.Name] = t.SQL
			}
		}
	}
	return out
}
