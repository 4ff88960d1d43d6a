// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factory

import (
	"fmt"

	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
)

// Prebuilt accepts trees that are already built or buildable: a
// *cmdtree.Tree, a *cmdtree.Builder, or a cmdtree.TreeProvider.
type Prebuilt struct{}

func (Prebuilt) Create(_ *argparse.Registry, obj any) (*cmdtree.Tree, bool, error) {
	switch v := obj.(type) {
	case *cmdtree.Tree:
		if v == nil {
			return nil, true, fmt.Errorf("nil *cmdtree.Tree")
		}
		return v, true, nil
	case *cmdtree.Builder:
		if v == nil {
			return nil, true, fmt.Errorf("nil *cmdtree.Builder")
		}
		t, err := v.Build()
		if err != nil {
			return nil, true, err
		}
		return t, true, nil
	case cmdtree.TreeProvider:
		t, err := v.CommandTree()
		if err != nil {
			return nil, true, err
		}
		if t == nil {
			return nil, true, fmt.Errorf("%T.CommandTree returned no tree", obj)
		}
		return t, true, nil
	}
	return nil, false, nil
}
