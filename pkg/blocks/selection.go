package blocks

// Selection is the control-flow view's current function and block.
type Selection struct {
	Function string `json:"function"`
	Block    string `json:"block"`
}

// ResolveFunction returns the function that should be selected given the
// current choice and the available functions. A current choice that is still
// available is kept; otherwise the first function wins. Resolving an already
// resolved value returns it unchanged.
func ResolveFunction(current string, functions []string) string {
	return resolve(current, functions)
}

// ResolveBlock is ResolveFunction for the blocks of the selected function.
func ResolveBlock(current string, blocks []string) string {
	return resolve(current, blocks)
}

// Resolve applies both defaults against an index.
func (idx *Index) Resolve(sel Selection) Selection {
	function := ResolveFunction(sel.Function, idx.functions)
	return Selection{
		Function: function,
		Block:    ResolveBlock(sel.Block, idx.blocks[function]),
	}
}

func resolve(current string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if current != "" {
		for _, o := range options {
			if o == current {
				return current
			}
		}
	}
	return options[0]
}
