// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe

// DefaultRecipe is used when no recipe file is given
const DefaultRecipe = `{% set data = load_setup_py_data() %}

package:
  name: {{ data.get('name')|yaml_string }}
  version: {{ GIT_DESCRIBE_TAG|yaml_string }}

build:
  number: {{ GIT_DESCRIBE_NUMBER|int }}

requirements:
  build:
    - python
    - setuptools
  run:
    - python>=3.10,<4
    {% for dep in data.get('install_requires') %}
    - {{ dep.lower()|yaml_string }}
    {% endfor %}

test:
  imports:
    - {{ data.get('name')|yaml_string }}
  source_files:
    - tests

about:
  home: {{ data.get('url')|yaml_string }}
  summary: {{ data.get('description')|yaml_string }}
`

const defaultRecipeName = "meta.yaml"
