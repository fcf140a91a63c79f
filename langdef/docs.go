/*
Package langdef converts textual grammar definition to grammar.Grammar structure.

Grammar definition is a YAML document resembling Sublime Text .sublime-syntax files:

	name: INI
	file_extensions: [ini]
	scope: source.ini
	variables:
	  name: '[A-Za-z_][A-Za-z0-9_.-]*'
	contexts:
	  main:
	    - match: '^\[({{name}})\]'
	      captures:
	        1: entity.name.section.ini
	    - match: '^({{name}})\s*(=)'
	      captures:
	        1: variable.other.key.ini
	        2: keyword.operator.assignment.ini
	      push: value
	    - match: '[;#]'
	      push: comment
	  value:
	    - meta_content_scope: string.unquoted.ini
	    - match: '\n'
	      pop: true
	  comment:
	    - meta_scope: comment.line.ini
	    - match: '\n'
	      pop: true

Top-level keys are name, scope (root scope of every token), file_extensions, first_line_match,
variables, and contexts. Other keys are ignored.

Variables map names to regular expression fragments. Every {{name}} occurrence in a match pattern,
in a context name referred to by push, set, or include, and in another variable value
is replaced with variable value. A variable must not refer to itself, directly or indirectly.

Contexts map names to lists of rules. The main context must be present, it is the bottom of
the context stack. Context names may be used before they are defined. A context named prototype
is implicitly included at the top of every other context except contexts it includes itself
and contexts declaring meta_include_prototype: false.

A rule is one of:

	- meta_scope: <scopes>          # applied to all text while context is active, including push/pop matches
	- meta_content_scope: <scopes>  # applied to text while context is active, excluding push/pop matches
	- meta_include_prototype: false # do not include prototype context
	- include: <context>            # splice rules of another context in place
	- match: <pattern>              # pattern rule

Pattern rule may have following keys:

	scope: <scopes>       # applied to the whole match
	captures:             # applied to capturing groups on top of scope
	  <group>: <scopes>
	push: <target>        # push contexts
	set: <target>         # replace current context
	pop: true | <count>   # remove current context (or count contexts)

Scopes are space-separated scope names. Target is a context name, a list of rules defining
an anonymous context, or a list of names and anonymous contexts (the last one ends up on top).

Patterns use RE2 syntax (see regexp/syntax), lookaround assertions and backreferences are not
supported. Patterns are matched against single lines including trailing line feed,
so ^ anchors a line start and \n matches a line end.

Includes are flattened at load time in declaration order: an included context contributes
its rules (and rules of contexts it includes) at the position of the include rule,
each context contributes at most once, so contexts may include themselves or each other.
*/
package langdef
