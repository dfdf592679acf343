/*

Process of compilation

Program Text ->
	parse ->
Syntax Tree (ast) ->
	analyze ->
Typed Syntax Tree ->
	front ->
Intermediate Representation (ir) ->
	back ->
Assembly Text (x86-64) ->
	link ->
Binary Executable

Intermediate Representation (ir) ->
	llvm ->
LLVM Assembly

Intermediate Representation (ir) ->
	interp ->
Program Output

*/
package compiler
