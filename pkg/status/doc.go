/*
Package status tracks and reports the progress of queued archive operations.

	            +-------------+
	            |   Status    |
	            | (Tracking)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|  Tracker  |           | Reports |
	| (Counts)  |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
- Tracks operation outcomes (completed, canceled, failed)
- Reports batch progress against a known total
- Provides user-friendly terminal feedback

🔄 Flow:
1. A command starts a batch with a known operation count
2. Each resolved handle is recorded with its outcome
3. Progress and final tallies are reported to the user

🤝 Interfaces:
- Formatter: formats operation and progress lines
- Tracker: records outcomes and progress

📝 Design Philosophy:
Presentation stays out of the operation package: the dispatcher only logs,
and anything user-facing goes through this package so output formats can
change without touching queue internals.
*/
package status
